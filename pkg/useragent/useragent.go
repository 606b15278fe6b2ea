// Package useragent 将 User-Agent 解析为评论需要保存的系统、浏览器与设备字段。
package useragent

import (
	"strings"

	uaparser "github.com/mssola/useragent"
)

// DefaultDevice 无法识别设备时的默认值
const DefaultDevice = "Desktop"

// Info 解析结果
type Info struct {
	OS      string
	Browser string
	Device  string
}

// Parse 解析 User-Agent，无法识别的字段为空串
func Parse(ua string) Info {
	if strings.TrimSpace(ua) == "" {
		return Info{Device: DefaultDevice}
	}
	parsed := uaparser.New(ua)

	osInfo := parsed.OSInfo()
	name, version := parsed.Browser()

	return Info{
		OS:      join(osInfo.Name, osInfo.Version),
		Browser: join(name, version),
		Device:  device(parsed),
	}
}

func join(name, version string) string {
	return strings.TrimSpace(name + " " + version)
}

func device(ua *uaparser.UserAgent) string {
	if ua.Bot() {
		return "Bot"
	}
	if !ua.Mobile() {
		return DefaultDevice
	}
	platform := strings.TrimSpace(ua.Platform())
	switch platform {
	case "iPhone", "iPad", "iPod", "BlackBerry", "Windows Phone":
		return platform
	}
	return "Mobile"
}
