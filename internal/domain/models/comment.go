package models

import "time"

// Columns that accept free-text annotations.
const (
	ColumnDowntimeDuration = "downtime_duration"
	ColumnAdjustmentTime   = "adjustment_time"
)

// IsCommentColumn reports whether notes may be attached to the column.
func IsCommentColumn(key string) bool {
	return key == ColumnDowntimeDuration || key == ColumnAdjustmentTime
}

// Comment is an operator note explaining a downtime figure on a record.
type Comment struct {
	ID        string    `bson:"_id" json:"id" gorm:"primaryKey;size:36"`
	RecordID  string    `bson:"record_id" json:"record_id" gorm:"size:36;not null;uniqueIndex:idx_comment_record_column"`
	ColumnKey string    `bson:"column_key" json:"column_key" gorm:"size:50;not null;uniqueIndex:idx_comment_record_column"`
	Text      string    `bson:"text" json:"comment" gorm:"type:text;not null"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// TableName pins the SQL table name.
func (Comment) TableName() string {
	return "comments"
}

// CommentRequest is the body of a comment save call.
type CommentRequest struct {
	Comment string `json:"comment"`
}
