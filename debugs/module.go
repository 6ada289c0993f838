package debugs

import (
	"github.com/reusee/bridgestr/logs"
	"github.com/reusee/bridgestr/scripts"
	"github.com/reusee/dscope"
)

type Module struct {
	dscope.Module
	Scripts scripts.Module
	Logs    logs.Module
}
