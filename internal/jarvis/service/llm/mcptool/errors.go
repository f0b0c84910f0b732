package mcptool

import "github.com/jarvisrun/jarvis/internal/jarvis/pkg/apierr"

func errToolNotFound(name string) error {
	return apierr.Newf(apierr.NotFound, apierr.CodeToolNotFound, "mcp tool %q not found on any connected server", name)
}
