package model

// Course is static reference data students enroll into.
type Course struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CreateCourseRequest is the payload for adding a course.
type CreateCourseRequest struct {
	Name string `json:"name" binding:"required,min=2,max=100"`
}
