package models

import "time"

// Note categories.
const (
	NoteCategoryGeneral  = "general"
	NoteCategoryConcern  = "concern"
	NoteCategoryFollowUp = "follow_up"
	NoteCategoryDecision = "decision"
)

// NoteCategories lists the accepted note categories.
var NoteCategories = []string{
	NoteCategoryGeneral,
	NoteCategoryConcern,
	NoteCategoryFollowUp,
	NoteCategoryDecision,
}

// Note is an append-only annotation on a credentialing record. There is no
// update or delete path anywhere in the codebase.
type Note struct {
	NoteID       int       `gorm:"primaryKey;column:note_id" json:"note_id"`
	RecordID     int       `gorm:"column:record_id" json:"record_id"`
	AuthorUserID int       `gorm:"column:author_user_id" json:"author_user_id"`
	Text         string    `gorm:"column:note_text" json:"text"`
	Category     string    `gorm:"column:category" json:"category"`
	InternalOnly bool      `gorm:"column:internal_only" json:"internal_only"`
	CreateAt     time.Time `gorm:"column:create_at" json:"create_at"`

	// Relations
	Author User `gorm:"foreignKey:AuthorUserID" json:"author,omitempty"`
}

func (Note) TableName() string {
	return "credentialing_notes"
}

// IsValidNoteCategory reports whether c is one of the accepted categories.
func IsValidNoteCategory(c string) bool {
	for _, known := range NoteCategories {
		if c == known {
			return true
		}
	}
	return false
}
