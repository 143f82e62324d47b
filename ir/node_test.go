package ir

import "testing"

func TestChildren_SkipsNil(t *testing.T) {
	x := &Atom{Text: "x"}
	two := &Atom{Text: "2", Number: true}
	s := &Scripts{Nucleus: x, Sup: two}
	got := Children(s)
	if len(got) != 2 || got[0] != Node(x) || got[1] != Node(two) {
		t.Fatalf("unexpected children: %#v", got)
	}
	if s.Kind() != "msup" {
		t.Fatalf("expected msup, got %s", s.Kind())
	}
}

func TestCount(t *testing.T) {
	tree := &Row{Children: []Node{
		&Fraction{Num: &Atom{Text: "1"}, Den: &Atom{Text: "2"}},
		&Array{Cells: [][]Node{{&Atom{Text: "a"}, &Atom{Text: "b"}}, {&Atom{Text: "c"}}}},
		&Space{Width: 0.5},
	}}
	if n := Count(tree); n != 9 {
		t.Fatalf("expected 9 nodes, got %d", n)
	}
}

func TestWalk_Prune(t *testing.T) {
	inner := &Row{Children: []Node{&Atom{Text: "a"}, &Atom{Text: "b"}}}
	tree := &Row{Children: []Node{inner, &Atom{Text: "c"}}}
	var seen []string
	Walk(tree, func(n Node) bool {
		if a, ok := n.(*Atom); ok {
			seen = append(seen, a.Text)
		}
		return n != Node(inner)
	})
	if len(seen) != 1 || seen[0] != "c" {
		t.Fatalf("expected only c to be visited, got %v", seen)
	}
}

func TestKinds(t *testing.T) {
	tests := []struct {
		node Node
		want string
	}{
		{&Atom{Text: "x"}, "mi"},
		{&Atom{Text: "3", Number: true}, "mn"},
		{&Atom{Text: "+", Class: ClassBin}, "mo"},
		{&Radical{Body: &Atom{}}, "msqrt"},
		{&Radical{Body: &Atom{}, Index: &Atom{}}, "mroot"},
		{&OverUnder{Nucleus: &Atom{}, Under: &Atom{}}, "munder"},
		{&OverUnder{Nucleus: &Atom{}, OverDecor: DecorBrace, Under: &Atom{}}, "munderover"},
		{&Phantom{Hidden: true}, "mphantom"},
		{&Placeholder{Name: `\foo`}, "merror"},
	}
	for _, tc := range tests {
		if got := tc.node.Kind(); got != tc.want {
			t.Fatalf("%T: expected %s, got %s", tc.node, tc.want, got)
		}
	}
}
