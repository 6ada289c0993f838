package bridges

import (
	"slices"

	"github.com/reusee/bridgestr/cmds"
	"github.com/reusee/bridgestr/configs"
	"github.com/reusee/bridgestr/logs"
	"github.com/reusee/dscope"
)

type Module struct {
	dscope.Module
	Configs configs.Module
	Logs    logs.Module
}

// Limit is the highest handle the registry issues before wrapping to 0.
type Limit int

const DefaultLimit = 200

var limitFlag = cmds.Var[*int]("-registry-limit")

func (Module) Limit(
	loader configs.Loader,
	logger logs.Logger,
) Limit {
	limit := DefaultLimit
	if n := *limitFlag; n != nil {
		limit = *n
	} else if n := configs.First[*int](loader, "registry_limit"); n != nil {
		limit = *n
		if values := slices.Collect(configs.All[int](loader, "registry_limit")); len(values) > 1 {
			logger.Debug("registry_limit set by several config files",
				"values", values,
				"using", limit,
			)
		}
	}
	if limit > MaxLimit || limit < 0 {
		logger.Warn("registry limit out of range",
			"limit", limit,
			"max", MaxLimit,
		)
		limit = clampLimit(limit)
	}
	return Limit(limit)
}

type DetectCycles bool

var noCycleCheck = cmds.Switch("-no-cycle-check")

func (Module) DetectCycles(
	loader configs.Loader,
) DetectCycles {
	if *noCycleCheck {
		return false
	}
	if v := configs.First[*bool](loader, "detect_cycles"); v != nil {
		return DetectCycles(*v)
	}
	return true
}

// Registry is shared by every encoder of the scope.
func (Module) Registry(
	limit Limit,
	logger logs.Logger,
) *Registry {
	return NewRegistry(int(limit), logger)
}

func (Module) Encoder(
	registry *Registry,
	detectCycles DetectCycles,
) *Encoder {
	encoder := NewEncoder(registry)
	encoder.DetectCycles = bool(detectCycles)
	return encoder
}
