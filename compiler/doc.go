/*

Process of compilation

Program Text ->
	lex ->
Tokens ->
	parse ->
Abstract Syntax Tree (ast) ->
	compile ->
Intermediate Representation (ir) ->
	verify ->
Verified Module ->
	run (interp | lli | clang) ->
Result

*/
package compiler
