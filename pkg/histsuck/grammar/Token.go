// Copyright 2024 Jack Bister
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package grammar

import "strings"

// Token is one element of a token tree. A token is either a leaf holding the matched text
// or a group holding the tokens produced by a Group or Named grammar.
type Token struct {
	Text   string
	Name   string
	Tokens []Token

	group bool
}

func leaf(text string) Token {
	return Token{Text: text}
}

func group(name string, tokens []Token) Token {
	return Token{Name: name, Tokens: tokens, group: true}
}

func (t Token) IsGroup() bool {
	return t.group
}

// Len returns the number of tokens in a group. Leaf tokens have length 0.
func (t Token) Len() int {
	return len(t.Tokens)
}

// Get returns the i:th token of a group, or the zero Token if there is no such token.
func (t Token) Get(i int) Token {
	if i < 0 || i >= len(t.Tokens) {
		return Token{}
	}
	return t.Tokens[i]
}

// Texts returns the text of every leaf directly inside the group.
func (t Token) Texts() []string {
	ret := make([]string, 0, len(t.Tokens))
	for _, tok := range t.Tokens {
		if !tok.group {
			ret = append(ret, tok.Text)
		}
	}
	return ret
}

func (t Token) String() string {
	if !t.group {
		return t.Text
	}
	var sb strings.Builder
	if t.Name != "" {
		sb.WriteString(t.Name)
	}
	sb.WriteRune('[')
	for i, tok := range t.Tokens {
		if i != 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(tok.String())
	}
	sb.WriteRune(']')
	return sb.String()
}

// Tree is the token tree of one successful match.
type Tree struct {
	Tokens []Token
}

// Get returns the i:th top level token, or the zero Token if there is no such token.
func (t Tree) Get(i int) Token {
	if i < 0 || i >= len(t.Tokens) {
		return Token{}
	}
	return t.Tokens[i]
}

// Items returns the top level groups produced by Named(name, ...) in document order.
func (t Tree) Items(name string) []Token {
	var ret []Token
	for _, tok := range t.Tokens {
		if tok.group && tok.Name == name {
			ret = append(ret, tok)
		}
	}
	return ret
}
