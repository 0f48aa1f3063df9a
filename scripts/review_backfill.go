// 手动触发 AI 批量评审脚本
//
// 对所有已提交但尚未评审的作业提交执行 AI 评审。适用于评审服务
// 中断后的补偿处理，或教师希望一次性批改积压提交的场景。
//
// 用法: go run scripts/review_backfill.go

package main

import (
	"context"
	"edu_collaborate_backend/internal/config"
	"edu_collaborate_backend/internal/model"
	"edu_collaborate_backend/internal/repository"
	"edu_collaborate_backend/internal/service"
	"edu_collaborate_backend/pkg/database"
	"edu_collaborate_backend/pkg/logger"
	"log"
)

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	aiService := service.NewAIService(cfg.AI)
	reviewService := service.NewReviewService(assignmentRepo, submissionRepo, aiService, nil)

	var pending []model.AssignmentSubmission
	if err := db.Where("status = ?", model.SubmissionSubmitted).Find(&pending).Error; err != nil {
		log.Fatalf("查询待评审提交失败: %v", err)
	}

	log.Printf("共 %d 条待评审提交", len(pending))

	ctx := context.Background()
	reviewed, failed := 0, 0
	for _, sub := range pending {
		var assignment model.Assignment
		if err := db.First(&assignment, sub.AssignmentID).Error; err != nil {
			log.Printf("提交 %d 对应的作业不存在，跳过", sub.ID)
			failed++
			continue
		}

		if _, err := reviewService.AIReview(ctx, sub.ID, assignment.CreatorID); err != nil {
			log.Printf("提交 %d 评审失败: %v", sub.ID, err)
			failed++
			continue
		}
		reviewed++
	}

	log.Printf("完成！成功 %d 条，失败 %d 条", reviewed, failed)
}
