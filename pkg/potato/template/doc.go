/*
Package template interpolates expressions into strings.

# Placeholders

	${expr}   evaluated with the configured Evaluator
	$a.b      the value bound at address a.b
	$$        a literal dollar sign

	exp := template.NewExpander(engine)
	out, _ := exp.Expand(ctx, "hp: $player.hp / ${$player.max * 2}", scope)

String literals inside ${...} may contain braces. The dollar style uses a
word boundary so $port does not match a prefix of $portNumber.

# Unresolved Placeholders

A placeholder is unresolved when evaluation fails or yields undefined. By
default it is kept as written. MissingEmpty drops it and MissingError
returns an UnresolvedError that wraps the underlying evaluation errors.

# Batch Expansion

ExpandAll and ExpandMap apply Expand to slices and, recursively, to the
string values of maps.
*/
package template
