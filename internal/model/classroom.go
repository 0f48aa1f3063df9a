package model

// swagger:model Classroom
type Classroom struct {
	BaseModel
	Name      string `gorm:"size:100;not null" json:"name"`
	Subject   string `gorm:"size:100" json:"subject"`
	TeacherID uint   `gorm:"index;type:bigint unsigned" json:"teacherId"`
}

func (Classroom) TableName() string {
	return "classrooms"
}

type ClassroomMember struct {
	BaseModel
	ClassroomID uint `gorm:"type:bigint unsigned;uniqueIndex:idx_classroom_member" json:"classroomId"`
	UserID      uint `gorm:"type:bigint unsigned;uniqueIndex:idx_classroom_member" json:"userId"`
}

func (ClassroomMember) TableName() string {
	return "classroom_members"
}
