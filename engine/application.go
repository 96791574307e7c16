package engine

import (
	"github.com/spaghettifunk/vkframe/engine/config"
)

type ApplicationConfig struct {
	// The application name reported to the driver.
	Name string
	// Window, renderer, shader and logging settings.
	Config *config.Config
}
