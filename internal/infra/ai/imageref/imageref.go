// Package imageref locates an image reference inside chat-completion
// responses whose shape differs per provider.
package imageref

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/bryanwahyu/marcenaria-vision/internal/domain/ai"
)

// Strategy is one independent extractor. Find returns "" when the shape does not match.
type Strategy struct {
	Name string
	Find func(doc map[string]any) string
}

// Strategies run in order, most structured first, so pattern matching on
// free text never wins over an explicit image field.
var Strategies = []Strategy{
	{Name: "message.images", Find: messageImages},
	{Name: "message.content.image", Find: contentImagePart},
	{Name: "message.content.text", Find: contentTextPattern},
	{Name: "message.content.string", Find: contentStringPattern},
	{Name: "images", Find: topLevelImages},
}

var dataURLPattern = regexp.MustCompile(`data:image/[a-zA-Z0-9.+-]+;base64,[A-Za-z0-9+/]+=*`)

// Extract decodes body and returns the first image reference found, or "".
func Extract(body []byte) string {
	ref, _ := Find(body)
	return ref
}

// Find is Extract that also reports which strategy matched.
func Find(body []byte) (string, string) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil || doc == nil {
		return "", ""
	}
	for _, s := range Strategies {
		if ref := s.Find(doc); ref != "" {
			return ref, s.Name
		}
	}
	return "", ""
}

func messageImages(doc map[string]any) string {
	msg := firstMessage(doc)
	if msg == nil {
		return ""
	}
	for _, img := range asSlice(msg["images"]) {
		if ref := imageURLField(img); ref != "" {
			return ref
		}
	}
	return ""
}

func contentImagePart(doc map[string]any) string {
	for _, part := range contentParts(doc) {
		switch asString(part["type"]) {
		case "image_url", "image", "output_image":
		default:
			continue
		}
		if ref := imageURLField(part); ref != "" {
			return ref
		}
		if ref := usable(asString(part["url"])); ref != "" {
			return ref
		}
	}
	return ""
}

func contentTextPattern(doc map[string]any) string {
	for _, part := range contentParts(doc) {
		if asString(part["type"]) != "text" {
			continue
		}
		if m := dataURLPattern.FindString(asString(part["text"])); m != "" {
			return m
		}
	}
	return ""
}

func contentStringPattern(doc map[string]any) string {
	msg := firstMessage(doc)
	if msg == nil {
		return ""
	}
	content, ok := msg["content"].(string)
	if !ok {
		return ""
	}
	return dataURLPattern.FindString(content)
}

func topLevelImages(doc map[string]any) string {
	for _, img := range asSlice(doc["images"]) {
		if s, ok := img.(string); ok {
			if ref := usable(s); ref != "" {
				return ref
			}
			continue
		}
		if ref := imageURLField(img); ref != "" {
			return ref
		}
		obj, _ := img.(map[string]any)
		if ref := usable(asString(obj["url"])); ref != "" {
			return ref
		}
		if b64 := strings.TrimSpace(asString(obj["b64_json"])); b64 != "" {
			return "data:image/png;base64," + b64
		}
	}
	return ""
}

// helpers

func firstMessage(doc map[string]any) map[string]any {
	choices := asSlice(doc["choices"])
	if len(choices) == 0 {
		return nil
	}
	choice, _ := choices[0].(map[string]any)
	msg, _ := choice["message"].(map[string]any)
	return msg
}

func contentParts(doc map[string]any) []map[string]any {
	msg := firstMessage(doc)
	if msg == nil {
		return nil
	}
	var out []map[string]any
	for _, p := range asSlice(msg["content"]) {
		if part, ok := p.(map[string]any); ok {
			out = append(out, part)
		}
	}
	return out
}

// imageURLField reads v.image_url.url, or v.image_url when it is a plain string.
func imageURLField(v any) string {
	obj, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	switch iu := obj["image_url"].(type) {
	case map[string]any:
		return usable(asString(iu["url"]))
	case string:
		return usable(iu)
	}
	return ""
}

func usable(ref string) string {
	ref = strings.TrimSpace(ref)
	if ai.IsDataURL(ref) || strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "http://") {
		return ref
	}
	return ""
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
