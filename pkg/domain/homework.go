package domain

import "time"

// Homework is a class-shared homework entry created by a verified user.
type Homework struct {
	ID             int64
	AuthorPersonID int64
	AuthorFullName string
	GradeClass     string
	Subject        string
	LessonDate     time.Time
	Text           string
	Files          []HomeworkFile
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HomeworkFile is the stored metadata of one homework attachment.
type HomeworkFile struct {
	ID          int64
	HomeworkID  int64
	FileName    string
	FileSize    int64
	MimeType    string
	StoragePath string
}
