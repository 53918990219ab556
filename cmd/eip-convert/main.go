// cmd/eip-convert/main.go
package main

import (
	"eipconvert/internal/appshell"
	"eipconvert/internal/convertapp"
)

func main() {
	appshell.Main(convertapp.RunContext)
}
