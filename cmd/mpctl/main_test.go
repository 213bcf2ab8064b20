package main

import (
	"strings"
	"testing"

	"code.hybscloud.com/mprompt/mprompt"
)

func TestRunStateScenario(t *testing.T) {
	s := mprompt.NewSite()
	defer s.Close()

	got := runState(s)
	if got != "result=11 final=11" {
		t.Fatalf("runState = %q, want result=11 final=11", got)
	}
}

func TestRunReaderScenario(t *testing.T) {
	s := mprompt.NewSite()
	defer s.Close()

	got := runReader(s)
	if got != "env=production" {
		t.Fatalf("runReader = %q, want env=production", got)
	}
}

func TestRunExnScenario(t *testing.T) {
	s := mprompt.NewSite()
	defer s.Close()

	got := runExn(s)
	if got != "recovered from: disk full" {
		t.Fatalf("runExn = %q, want recovered from: disk full", got)
	}
}

func TestRunChoiceScenario(t *testing.T) {
	s := mprompt.NewSite()
	defer s.Close()

	got := runChoice(s)
	if got != "[1 0]" {
		t.Fatalf("runChoice = %q, want [1 0]", got)
	}
}

func TestRunUnderScenario(t *testing.T) {
	s := mprompt.NewSite()
	defer s.Close()

	got := runUnder(s)
	if !strings.Contains(got, `"outer"`) {
		t.Fatalf("runUnder = %q, want it to resolve to the outer handler's data", got)
	}
}

func TestRunUnwindScenario(t *testing.T) {
	s := mprompt.NewSite()
	defer s.Close()

	got := runUnwind(s)
	if got != "handled: connection reset" {
		t.Fatalf("runUnwind = %q, want handled: connection reset", got)
	}
}
