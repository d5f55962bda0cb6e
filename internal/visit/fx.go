package visit

import (
	"github.com/tonynham/collabuu/internal/visit/repository"
	"github.com/tonynham/collabuu/internal/visit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("visit.service",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
