// Package stencil compiles delimiter-driven text templates into reusable
// programs.
//
// A grammar is a set of delimiter families. Each family has an opener, a
// closer and a list of tag names; anything in the source that is not a tag
// is copied through unchanged. The standard grammar reads like this:
//
//	Hello {$user.name}!
//	{if $admin}You can edit.{/if}
//	{else}Read only.{/else}
//	{foreach $item in $items}{$item_i}: {$item}
//	{/foreach}
//
// # Basic Usage
//
//	engine := stencil.MustNew()
//	tmpl, err := engine.Compile("Hello {$name}!")
//	if err != nil {
//	    return err
//	}
//	out, err := tmpl.Execute(ctx, map[string]any{"name": "Alice"})
//	// out: "Hello Alice!"
//
// A compiled Template is immutable and safe for concurrent use.
//
// # Custom Grammars
//
// Families can be declared in Go or loaded from YAML:
//
//	grammar := stencil.MustNewGrammar(&stencil.DelimiterType{
//	    Name:    "erb",
//	    Opener:  "<%",
//	    Closer:  "%>",
//	    Handler: "output",
//	    Tags: []*stencil.TagSpec{
//	        {Name: "if", Handler: "if"},
//	        {Name: "else", Isolated: true, Handler: "else"},
//	        {Name: "shout"},
//	    },
//	})
//	engine, err := stencil.New(stencil.WithGrammar(grammar))
//
// # Handlers
//
// A Handler turns one tag and its compiled children into a Fragment. The
// fragment constructors Text, Output, Branch, Loop and Call cover text,
// references, conditions, iteration and render-time callbacks:
//
//	shout := func(node *stencil.TagView, inner stencil.Fragment) (stencil.Fragment, error) {
//	    return stencil.Text(strings.ToUpper(node.Raw)), nil
//	}
//	engine, err := stencil.New(
//	    stencil.WithGrammar(grammar),
//	    stencil.WithHandler("erb", "shout", shout),
//	)
//
// # Errors
//
// Compile and render failures are *cuserr.CustomError values carrying line,
// column and tag metadata. Use errors.Is with ErrMalformedTag,
// ErrUnbalancedTag, ErrUnknownTag, ErrRender, ErrInvalidGrammar and
// ErrInvalidExpression to tell them apart.
//
// # Stored Views
//
// Views renders named templates from a TemplateStorage (memory,
// filesystem or PostgreSQL) and caches the compiled versions:
//
//	storage, _ := stencil.OpenStorage("filesystem", "./views")
//	views, _ := stencil.NewViews(engine, storage)
//	out, err := views.Render(ctx, "mail/welcome", data)
package stencil
