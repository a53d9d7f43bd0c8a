package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/soar/hotasd/internal/mapping"
)

func TestLoadMappingParsesEachActionKind(t *testing.T) {
	path := writeTempFile(t, "device,id,kind,target,priority,deadband\n"+
		"stick,joy_x,axis,lx,0,0.05\n"+
		"throttle,throttle_left,axis,lt,0,0.0\n"+
		"gamepad,A,button,a,10,0\n"+
		"gamepad,B,key,0x42,0,0\n"+
		"gamepad,X,mouse,left_click,0,0\n")

	table, err := loadMapping(path)
	if err != nil {
		t.Fatal(err)
	}
	entries := table.List()
	if len(entries) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(entries))
	}

	var sawAxis, sawButton, sawKey, sawMouse int
	for _, e := range entries {
		switch e.Action.Kind {
		case mapping.ActionAxis:
			sawAxis++
		case mapping.ActionButton:
			sawButton++
		case mapping.ActionKey:
			sawKey++
			if e.Action.VK != 0x42 {
				t.Fatalf("expected VK 0x42, got %#x", e.Action.VK)
			}
		case mapping.ActionMouse:
			sawMouse++
			if e.Action.Mouse != "left_click" {
				t.Fatalf("expected mouse token left_click, got %q", e.Action.Mouse)
			}
		}
	}
	if sawAxis != 2 || sawButton != 1 || sawKey != 1 || sawMouse != 1 {
		t.Fatalf("unexpected action kind distribution: axis=%d button=%d key=%d mouse=%d", sawAxis, sawButton, sawKey, sawMouse)
	}
}

func TestLoadMappingRejectsUnknownActionKind(t *testing.T) {
	path := writeTempFile(t, "device,id,kind,target,priority,deadband\n"+
		"stick,joy_x,trigger,lx,0,0\n")

	if _, err := loadMapping(path); err == nil {
		t.Fatal("expected an error for an unknown action kind")
	}
}

func TestLoadMappingRejectsUnknownAxisTarget(t *testing.T) {
	path := writeTempFile(t, "device,id,kind,target,priority,deadband\n"+
		"stick,joy_x,axis,nope,0,0\n")

	if _, err := loadMapping(path); err == nil {
		t.Fatal("expected an error for an unknown axis target")
	}
}

func TestReloadMappingReplacesEntriesInPlace(t *testing.T) {
	first := writeTempFile(t, "device,id,kind,target,priority,deadband\n"+
		"stick,joy_x,axis,lx,0,0\n")
	table, err := loadMapping(first)
	if err != nil {
		t.Fatal(err)
	}
	if len(table.List()) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(table.List()))
	}

	second := filepath.Join(filepath.Dir(first), "second.csv")
	contents := "device,id,kind,target,priority,deadband\n" +
		"stick,joy_x,axis,lx,0,0\n" +
		"throttle,throttle_left,axis,lt,0,0\n"
	if err := os.WriteFile(second, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := reloadMapping(table, second); err != nil {
		t.Fatal(err)
	}
	if len(table.List()) != 2 {
		t.Fatalf("expected 2 entries after reload, got %d", len(table.List()))
	}
}
