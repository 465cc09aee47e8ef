package adb

import (
	"bufio"
	"regexp"
	"strings"
)

// parseDevices extracts serials in the "device" state from `adb devices`
// output, preserving adb's order.
func parseDevices(out string) []string {
	var serials []string
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "List of devices") || strings.HasPrefix(line, "*") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[1] == "device" {
			serials = append(serials, fields[0])
		}
	}
	return serials
}

var (
	wakefulnessRe  = regexp.MustCompile(`mWakefulness=(\w+)`)
	displayPowerRe = regexp.MustCompile(`Display Power: state=(\w+)`)
	focusRe        = regexp.MustCompile(`mCurrentFocus=Window\{\S+ \S+ ([^\s}]+)\}`)
)

// parseScreenOn reads `dumpsys power` output.
func parseScreenOn(out string) bool {
	if m := wakefulnessRe.FindStringSubmatch(out); m != nil {
		return m[1] == "Awake"
	}
	if m := displayPowerRe.FindStringSubmatch(out); m != nil {
		return m[1] == "ON"
	}
	return false
}

// System UI windows that carry no package component in mCurrentFocus.
var systemUIWindows = map[string]bool{
	"NotificationShade": true,
	"StatusBar":         true,
	"Keyguard":          true,
}

const systemUIPackage = "com.android.systemui"

// parseForeground returns the package owning the focused window from
// `dumpsys window` output, or "" when nothing has focus.
func parseForeground(out string) string {
	m := focusRe.FindStringSubmatch(out)
	if m == nil {
		return ""
	}
	token := m[1]
	if pkg, _, ok := strings.Cut(token, "/"); ok {
		return pkg
	}
	if systemUIWindows[token] {
		return systemUIPackage
	}
	return token
}

var safeArgRe = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)

var keyAliases = map[string]string{
	"home":        "KEYCODE_HOME",
	"back":        "KEYCODE_BACK",
	"enter":       "KEYCODE_ENTER",
	"power":       "KEYCODE_POWER",
	"menu":        "KEYCODE_MENU",
	"recent":      "KEYCODE_APP_SWITCH",
	"wakeup":      "KEYCODE_WAKEUP",
	"volume_up":   "KEYCODE_VOLUME_UP",
	"volume_down": "KEYCODE_VOLUME_DOWN",
}

// keycode maps a friendly key name to an Android keycode.
func keycode(key string) string {
	if k, ok := keyAliases[strings.ToLower(key)]; ok {
		return k
	}
	if strings.HasPrefix(key, "KEYCODE_") {
		return key
	}
	return "KEYCODE_" + strings.ToUpper(key)
}
