package util

import (
	"fmt"
	"net"
	"os/exec"
	"runtime"
)

// browserCommand 返回当前系统打开 URL 的命令
func browserCommand(goos, url string) *exec.Cmd {
	switch goos {
	case "windows":
		// rundll32 调用 url.dll，比 cmd /c start 更稳定
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		return exec.Command("open", url)
	default:
		return exec.Command("xdg-open", url)
	}
}

// OpenBrowser 打开默认浏览器
func OpenBrowser(url string) error {
	return browserCommand(runtime.GOOS, url).Start()
}

// OpenBrowserWithFallback 带降级方案的浏览器打开
func OpenBrowserWithFallback(url string) error {
	err := OpenBrowser(url)
	if err == nil {
		return nil
	}

	switch runtime.GOOS {
	case "windows":
		return exec.Command("explorer", url).Start()
	case "linux":
		browsers := []string{"google-chrome", "firefox", "chromium-browser", "sensible-browser"}
		for _, browser := range browsers {
			if err := exec.Command(browser, url).Start(); err == nil {
				return nil
			}
		}
	}

	return err
}

// FindAvailablePort 从 startPort 开始查找可监听的端口（最多尝试 50 个）
func FindAvailablePort(startPort int) (int, error) {
	for port := startPort; port < startPort+50; port++ {
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err != nil {
			continue
		}
		_ = ln.Close()
		return port, nil
	}
	return 0, fmt.Errorf("no available port in [%d, %d)", startPort, startPort+50)
}
