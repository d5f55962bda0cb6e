package campaign

import (
	"github.com/tonynham/collabuu/internal/campaign/repository"
	"github.com/tonynham/collabuu/internal/campaign/service"
	"go.uber.org/fx"
)

var Module = fx.Module("campaign.service",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
