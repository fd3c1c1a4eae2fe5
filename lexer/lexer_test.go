package lexer

import "testing"

func collect(src string) []int {
	l := NewLexer(src, "test")
	var kinds []int
	for {
		_, kind, _ := l.NextToken()
		kinds = append(kinds, kind)
		if kind == TOKEN_EOF {
			return kinds
		}
	}
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	kinds := collect("local x = 1 + foo")
	want := []int{TOKEN_KW_LOCAL, TOKEN_IDENTIFIER, TOKEN_OP_ASSIGN, TOKEN_NUMBER, TOKEN_OP_ADD, TOKEN_IDENTIFIER, TOKEN_EOF}
	if len(kinds) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(kinds), len(want), kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("token %d: got %d want %d", i, kinds[i], want[i])
		}
	}
}

func TestLongBracketString(t *testing.T) {
	l := NewLexer("[[hello\nworld]]", "test")
	_, kind, tok := l.NextToken()
	if kind != TOKEN_STRING || tok != "hello\nworld" {
		t.Fatalf("got kind=%d tok=%q", kind, tok)
	}
}

func TestLongBracketLeadingNewlineStripped(t *testing.T) {
	l := NewLexer("[[\nfoo]]", "test")
	_, _, tok := l.NextToken()
	if tok != "foo" {
		t.Fatalf("got %q, want %q", tok, "foo")
	}
}

func TestLongComment(t *testing.T) {
	kinds := collect("--[[ a whole\nblock comment ]]return nil")
	want := []int{TOKEN_KW_RETURN, TOKEN_KW_NIL, TOKEN_EOF}
	if len(kinds) != len(want) || kinds[0] != want[0] {
		t.Fatalf("got %v", kinds)
	}
}

func TestGotoAndLabel(t *testing.T) {
	kinds := collect("::top:: goto top")
	want := []int{TOKEN_SEP_LABEL, TOKEN_IDENTIFIER, TOKEN_SEP_LABEL, TOKEN_KW_GOTO, TOKEN_IDENTIFIER, TOKEN_EOF}
	if len(kinds) != len(want) {
		t.Fatalf("got %v", kinds)
	}
}

func TestNumeralKinds(t *testing.T) {
	cases := []struct {
		text    string
		isFloat bool
	}{
		{"42", false},
		{"0x2A", false},
		{"3.14", true},
		{"1e10", true},
		{"0x1.8p3", true},
	}
	for _, c := range cases {
		isFloat, _, _, ok := ParseNumeral(c.text)
		if !ok {
			t.Fatalf("ParseNumeral(%q) failed", c.text)
		}
		if isFloat != c.isFloat {
			t.Fatalf("ParseNumeral(%q): got isFloat=%v want %v", c.text, isFloat, c.isFloat)
		}
	}
}

func TestLookAheadDoesNotConsume(t *testing.T) {
	l := NewLexer("return nil", "test")
	if k := l.LookAhead(); k != TOKEN_KW_RETURN {
		t.Fatalf("lookahead kind = %d", k)
	}
	_, kind, tok := l.NextToken()
	if kind != TOKEN_KW_RETURN || tok != "return" {
		t.Fatalf("next token after lookahead: kind=%d tok=%q", kind, tok)
	}
}
