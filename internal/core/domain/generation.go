package domain

type Pass string

const (
	PassPrimary Pass = "primary"
	PassRestyle Pass = "restyle"
)

type AttachmentKind string

const (
	AttachmentFile  AttachmentKind = "file"
	AttachmentImage AttachmentKind = "image"
)

// AttachmentRef points at an attachment already handed to the provider.
type AttachmentRef struct {
	Kind     AttachmentKind
	ID       string
	Filename string
	DataURL  string
}

type GenerationRequest struct {
	Pass        Pass
	Model       string
	System      string
	User        string
	Temperature float64
	Attachment  *AttachmentRef
}

type Generation struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
}
