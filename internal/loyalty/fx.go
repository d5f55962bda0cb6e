package loyalty

import (
	"github.com/tonynham/collabuu/internal/loyalty/repository"
	"github.com/tonynham/collabuu/internal/loyalty/service"
	"go.uber.org/fx"
)

var Module = fx.Module("loyalty.service",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
