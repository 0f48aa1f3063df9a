package repository

import (
	"edu_collaborate_backend/internal/model"

	"gorm.io/gorm"
)

type ClassroomRepository struct {
	DB *gorm.DB
}

func NewClassroomRepository(db *gorm.DB) *ClassroomRepository {
	return &ClassroomRepository{DB: db}
}

func (r *ClassroomRepository) Create(classroom *model.Classroom) error {
	return r.DB.Create(classroom).Error
}

func (r *ClassroomRepository) FindByID(id uint) (*model.Classroom, error) {
	var c model.Classroom
	err := r.DB.First(&c, id).Error
	return &c, err
}

func (r *ClassroomRepository) ListByTeacher(teacherID uint) ([]model.Classroom, error) {
	var cs []model.Classroom
	err := r.DB.Where("teacher_id = ?", teacherID).Order("created_at desc").Find(&cs).Error
	return cs, err
}

// MemberClassroomIDs 返回学生所在的全部班级 ID
func (r *ClassroomRepository) MemberClassroomIDs(userID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.ClassroomMember{}).
		Where("user_id = ?", userID).
		Pluck("classroom_id", &ids).Error
	return ids, err
}

func (r *ClassroomRepository) AddMember(classroomID, userID uint) error {
	return r.DB.FirstOrCreate(&model.ClassroomMember{}, model.ClassroomMember{
		ClassroomID: classroomID,
		UserID:      userID,
	}).Error
}

func (r *ClassroomRepository) RemoveMember(classroomID, userID uint) error {
	return r.DB.Where("classroom_id = ? AND user_id = ?", classroomID, userID).
		Delete(&model.ClassroomMember{}).Error
}

func (r *ClassroomRepository) IsMember(classroomID, userID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.ClassroomMember{}).
		Where("classroom_id = ? AND user_id = ?", classroomID, userID).
		Count(&count).Error
	return count > 0, err
}
