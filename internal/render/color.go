package render

import "boxmux/internal/colorname"

func ansiForeground(name string) string {
	if code := colorname.Foreground(name); code != "" {
		return code
	}
	return "39" // terminal default foreground
}

func ansiBackground(name string) string {
	if code := colorname.Background(name); code != "" {
		return code
	}
	return "49" // terminal default background
}
