// Package subs applies inline substitutions to block content and titles.
//
// Substitutions run as an ordered pipeline of stages: special characters,
// quotes, attribute references, replacements, macros, post replacements
// and callouts. Whatever subset of stages a block asks for, they always
// run in that order.
//
// Passthrough markup (+++x+++, pass:[x], +x+ and friends) is lifted out
// of the text before the first stage and put back after the last, so the
// stages never see it:
//
//	s := subs.New(doc, warns)
//	html := s.For(block).ApplySubs("a +++<b>+++ *c*", model.NormalSubs)
//
// Inline markup is turned into [model.Inline] nodes and rendered through
// the document's [model.Converter].
package subs
