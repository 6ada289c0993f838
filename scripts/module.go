package scripts

import (
	"github.com/reusee/bridgestr/bridges"
	"github.com/reusee/bridgestr/logs"
	"github.com/reusee/dscope"
)

type Module struct {
	dscope.Module
	Bridges bridges.Module
	Logs    logs.Module
}

// Sources is shared by every script of the scope.
func (Module) Sources() *Sources {
	return NewSources()
}

// Encode encodes host or script values, printing script functions from Sources.
type Encode func(value any) (string, error)

func (Module) Encode(
	encoder *bridges.Encoder,
	sources *Sources,
) Encode {
	return sources.Encoder(encoder).Encode
}
