// Copyright 2014-2026 the variableserver authors.
package vscmd

import "testing"

func TestParseNoArgs(t *testing.T) {
	c, err := Parse("trick.var_send()\n")
	if err != nil {
		t.Fatal(err)
	}
	if c.Verb != "trick.var_send" {
		t.Fatalf("verb = %q", c.Verb)
	}
	if len(c.Args) != 0 {
		t.Fatalf("args = %v, want none", c.Args)
	}
}

func TestParseBareVerb(t *testing.T) {
	c, err := Parse("trick.var_pause")
	if err != nil {
		t.Fatal(err)
	}
	if c.Verb != "trick.var_pause" {
		t.Fatalf("verb = %q", c.Verb)
	}
}

func TestParseStringArg(t *testing.T) {
	c, err := Parse(`trick.var_add("obj.x")`)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Args) != 1 || c.Args[0].Kind != ArgString || c.Args[0].Raw != "obj.x" {
		t.Fatalf("args = %+v", c.Args)
	}
}

func TestParseMultipleArgs(t *testing.T) {
	c, err := Parse(`trick.var_add("obj.x", "meters")`)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Args) != 2 {
		t.Fatalf("args = %+v", c.Args)
	}
	if c.Args[1].Raw != "meters" {
		t.Fatalf("second arg = %q", c.Args[1].Raw)
	}
}

func TestParseNumberAndBoolArgs(t *testing.T) {
	c, err := Parse(`trick.var_set_binary_format(true, false)`)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Args) != 2 || c.Args[0].Kind != ArgBool || c.Args[1].Kind != ArgBool {
		t.Fatalf("args = %+v", c.Args)
	}

	c2, err := Parse(`trick.var_set_frame_multiple(4)`)
	if err != nil {
		t.Fatal(err)
	}
	if len(c2.Args) != 1 || c2.Args[0].Kind != ArgNumber {
		t.Fatalf("args = %+v", c2.Args)
	}
	n, err := c2.Args[0].Int()
	if err != nil || n != 4 {
		t.Fatalf("Int() = %d, %v", n, err)
	}
}

func TestParseEscapedQuote(t *testing.T) {
	c, err := Parse(`trick.var_add("say \"hi\"")`)
	if err != nil {
		t.Fatal(err)
	}
	if c.Args[0].Raw != `say "hi"` {
		t.Fatalf("got %q", c.Args[0].Raw)
	}
}

func TestParseUnterminatedArgListFails(t *testing.T) {
	if _, err := Parse(`trick.var_add("x"`); err == nil {
		t.Fatal("expected parse error for unterminated argument list")
	}
}

func TestParseUnterminatedQuoteFails(t *testing.T) {
	if _, err := Parse(`trick.var_add("x)`); err == nil {
		t.Fatal("expected parse error for unterminated quote")
	}
}

func TestParseEmptyLineFails(t *testing.T) {
	if _, err := Parse(""); err == nil {
		t.Fatal("expected parse error for empty line")
	}
}
