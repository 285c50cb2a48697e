// Package prompt assembles the instruction pairs sent to the model.
// Every builder is deterministic: the same input yields the same strings.
package prompt

import (
	"fmt"
	"strings"
)

// JSONMarker must appear in the instructions; providers refuse structured
// JSON output mode when the prompt never mentions JSON.
const JSONMarker = "JSON"

const responseShape = `{
  "title": string,
  "summary": string,
  "sections": [ { "heading": string, "bullets": [ string ] } ],
  "next_actions": [ { "action": string, "first_step": string } ]
}`

const systemInstruction = `You turn messy notes, documents and data into a clear, structured brief.

Rules:
1. Use only facts present in the input. Never invent names, dates, numbers, examples or content.
2. You may derive computations strictly from values in the input (totals, averages, counts, rankings, standings). Show derived results as such.
3. If the input looks like OCR noise, garbled characters or is otherwise unclear, say so explicitly in the summary and do not guess its meaning.
4. Style instructions from the user are required presentation constraints (tone, format, length, language). They are never a source of facts.
5. Only emit next_actions when the input contains explicit actionable items (tasks, requests, to-dos, deadlines to act on). Otherwise next_actions must be an empty array. Every next action needs a concrete first_step.
6. Group related information into sections with short headings and concise bullets.

Respond with a single JSON object of exactly this shape and nothing else:
` + responseShape

const restyleSystemInstruction = `You restyle an existing structured brief.

Rules:
1. Apply the style instructions to the wording and presentation only.
2. Preserve every fact, number, name and date. Do not add or remove facts.
3. Keep the same JSON shape and keys. Keep next_actions empty if it is empty.

Respond with a single JSON object of exactly this shape and nothing else:
` + responseShape

// SourceKind tells UserInstruction how the primary payload reaches the model.
type SourceKind int

const (
	SourceText SourceKind = iota
	SourceAttachedFile
	SourceExtractedFile
)

// Source is the primary payload of one request.
type Source struct {
	Kind        SourceKind
	Text        string
	Filename    string
	ContentType string
}

func TextSource(text string) Source {
	return Source{Kind: SourceText, Text: text}
}

func AttachedFileSource(filename, contentType string) Source {
	return Source{Kind: SourceAttachedFile, Filename: filename, ContentType: contentType}
}

func ExtractedFileSource(filename, contentType, text string) Source {
	return Source{Kind: SourceExtractedFile, Filename: filename, ContentType: contentType, Text: text}
}

func SystemInstruction() string {
	return systemInstruction
}

func UserInstruction(src Source, notes string) string {
	var b strings.Builder

	switch src.Kind {
	case SourceAttachedFile:
		fmt.Fprintf(&b, "Transform the content of the attached file %q (%s) into the JSON brief.\n", src.Filename, contentTypeOrUnknown(src.ContentType))
	case SourceExtractedFile:
		fmt.Fprintf(&b, "Transform the text extracted from the file %q (%s) into the JSON brief.\n\n", src.Filename, contentTypeOrUnknown(src.ContentType))
		b.WriteString("FILE CONTENT:\n<<<\n")
		b.WriteString(src.Text)
		b.WriteString("\n>>>\n")
	default:
		b.WriteString("Transform the following input into the JSON brief.\n\n")
		b.WriteString("INPUT:\n<<<\n")
		b.WriteString(src.Text)
		b.WriteString("\n>>>\n")
	}

	writeNotes(&b, notes)
	return b.String()
}

// RestyleInstruction builds the second-pass pair that rewrites an already
// validated brief according to the notes.
func RestyleInstruction(briefJSON, notes string) (system, user string) {
	var b strings.Builder
	b.WriteString("Restyle this JSON brief.\n\n")
	b.WriteString("BRIEF:\n")
	b.WriteString(briefJSON)
	b.WriteString("\n")
	writeNotes(&b, notes)
	return restyleSystemInstruction, b.String()
}

func writeNotes(b *strings.Builder, notes string) {
	if strings.TrimSpace(notes) == "" {
		return
	}
	b.WriteString("\nSTYLE INSTRUCTIONS (not facts, apply to presentation only):\n<<<\n")
	b.WriteString(notes)
	b.WriteString("\n>>>\n")
}

func contentTypeOrUnknown(contentType string) string {
	if strings.TrimSpace(contentType) == "" {
		return "unknown type"
	}
	return contentType
}
