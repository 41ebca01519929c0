package app

import (
	"os/exec"
	"runtime"
)

// openBrowser открывает URL в браузере по умолчанию.
func openBrowser(url string) error {
	name, args := browserCommand(runtime.GOOS, url)
	if name == "xdg-open" {
		if _, err := exec.LookPath(name); err != nil {
			name = "sensible-browser"
		}
	}
	return exec.Command(name, args...).Start()
}

func browserCommand(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		// rundll32 не открывает окно консоли, в отличие от cmd /c start
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		return "xdg-open", []string{url}
	}
}
