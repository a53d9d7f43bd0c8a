//go:build windows

package main

import (
	"github.com/soar/hotasd/internal/adapter/sendinput"
	"github.com/soar/hotasd/internal/adapter/vigem"
	"github.com/soar/hotasd/internal/publish"
)

func padBackend() publish.VirtualPad       { return vigem.New() }
func inputBackend() publish.SyntheticInput { return sendinput.New() }
