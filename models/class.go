package models

// ClassItem is a purchasable class as returned by the course API.
type ClassItem struct {
	ID           string `json:"id"`
	Title        string `json:"title" binding:"required,max=200"`
	Description  string `json:"description"`
	Price        int64  `json:"price" binding:"gte=0"` // whole IDR, no minor unit
	Visible      bool   `json:"visible"`
	MentorID     string `json:"mentor_id,omitempty"`
	CurriculumID string `json:"curriculum_id,omitempty"`
}

// Mentor is reference data shown next to a class.
type Mentor struct {
	ID        string `json:"id"`
	Name      string `json:"name" binding:"required,max=100"`
	Title     string `json:"title,omitempty"`
	Bio       string `json:"bio,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Curriculum groups the sessions a class covers.
type Curriculum struct {
	ID          string   `json:"id"`
	Title       string   `json:"title" binding:"required,max=200"`
	Description string   `json:"description,omitempty"`
	Topics      []string `json:"topics,omitempty"`
}
