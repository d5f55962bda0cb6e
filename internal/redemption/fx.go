package redemption

import (
	"github.com/tonynham/collabuu/internal/redemption/repository"
	"github.com/tonynham/collabuu/internal/redemption/service"
	"go.uber.org/fx"
)

var Module = fx.Module("redemption.service",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
