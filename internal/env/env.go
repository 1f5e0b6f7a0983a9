package env

import (
	"github.com/ksobolewski/multirelay-controller/internal/config"
)

var Cfg *config.Config
