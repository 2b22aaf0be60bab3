package app

import (
	"gorm.io/gorm"

	recrepo "github.com/yungbote/collegeprep-backend/internal/data/repos/recommendation"
	"github.com/yungbote/collegeprep-backend/internal/platform/logger"
)

type Repos struct {
	Recommendation recrepo.RecommendationRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Recommendation: recrepo.NewRecommendationRepo(db, log),
	}
}
