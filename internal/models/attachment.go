package models

// Attachment is the response to a media upload. The URL becomes the content
// of an image or video message.
type Attachment struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Type     string `json:"type"` // image, video
}
