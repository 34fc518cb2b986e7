package stencil

import (
	"io"
	"os"

	"github.com/itsatony/go-stencil/internal"
	"gopkg.in/yaml.v3"
)

// Grammar is a validated, immutable set of delimiter families.
type Grammar = internal.Grammar

// DelimiterType defines one tag family: opener, closer and optional named
// tags. Families without tags only produce anonymous tags.
type DelimiterType = internal.DelimiterType

// TagSpec defines one named tag of a family.
type TagSpec = internal.TagSpec

// NewGrammar validates the given families and orders them by priority.
func NewGrammar(families ...*DelimiterType) (*Grammar, error) {
	g, err := internal.NewGrammar(families...)
	if err != nil {
		return nil, wrapError(err, ErrMsgInvalidGrammar)
	}
	return g, nil
}

// MustNewGrammar is like NewGrammar but panics on error.
func MustNewGrammar(families ...*DelimiterType) *Grammar {
	g, err := NewGrammar(families...)
	if err != nil {
		panic(err)
	}
	return g
}

// StandardFamilies returns fresh definitions of the standard families:
// "{echo ...}" output, "{script ...}" Starlark expressions, and the "{...}"
// statement family with if/elseif/else, foreach, for, literal and comment.
func StandardFamilies() []*DelimiterType {
	return []*DelimiterType{
		{
			Name:     FamilyStatement,
			Opener:   StatementOpener,
			Closer:   StatementCloser,
			Priority: StatementPriority,
			Handler:  HandlerOutput,
			Tags: []*TagSpec{
				{Name: TagIf, Handler: HandlerIf},
				{Name: TagElseIf, Isolated: true, Handler: HandlerElseIf},
				{Name: TagElse, Isolated: true, Handler: HandlerElse},
				{Name: TagForeach, Arguments: LoopArguments, Handler: HandlerForeach},
				{Name: TagFor, Arguments: LoopArguments, Handler: HandlerFor},
				{Name: TagLiteral, Verbatim: true, Handler: HandlerLiteral},
				{Name: TagComment, Verbatim: true, Handler: HandlerComment},
			},
		},
		{
			Name:     FamilyEcho,
			Opener:   EchoOpener,
			Closer:   EchoCloser,
			Priority: EchoPriority,
			Handler:  HandlerOutput,
		},
		{
			Name:     FamilyScript,
			Opener:   ScriptOpener,
			Closer:   ScriptCloser,
			Priority: ScriptPriority,
			Handler:  HandlerScript,
		},
	}
}

// StandardGrammar returns the default grammar.
func StandardGrammar() *Grammar {
	return MustNewGrammar(StandardFamilies()...)
}

// grammarFile is the YAML document layout of a grammar file
type grammarFile struct {
	Families []familyFile `yaml:"families"`
}

type familyFile struct {
	Name      string    `yaml:"name"`
	Opener    string    `yaml:"opener"`
	Closer    string    `yaml:"closer"`
	Priority  int       `yaml:"priority,omitempty"`
	Arguments string    `yaml:"arguments,omitempty"`
	Handler   string    `yaml:"handler,omitempty"`
	Tags      []tagFile `yaml:"tags,omitempty"`
}

type tagFile struct {
	Name      string `yaml:"name"`
	Isolated  bool   `yaml:"isolated,omitempty"`
	Verbatim  bool   `yaml:"verbatim,omitempty"`
	Arguments string `yaml:"arguments,omitempty"`
	Handler   string `yaml:"handler,omitempty"`
}

// LoadGrammar decodes a YAML grammar document:
//
//	families:
//	  - name: statement
//	    opener: "{"
//	    closer: "}"
//	    handler: output
//	    tags:
//	      - name: if
//	        handler: if
func LoadGrammar(r io.Reader) (*Grammar, error) {
	return loadGrammar(r, "")
}

// LoadGrammarFile reads and decodes a YAML grammar file.
func LoadGrammarFile(path string) (*Grammar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, NewGrammarReadError(path, err)
	}
	defer f.Close()
	return loadGrammar(f, path)
}

func loadGrammar(r io.Reader, path string) (*Grammar, error) {
	var doc grammarFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, NewGrammarDecodeError(path, err)
	}

	families := make([]*DelimiterType, 0, len(doc.Families))
	for _, ff := range doc.Families {
		fam := &DelimiterType{
			Name:      ff.Name,
			Opener:    ff.Opener,
			Closer:    ff.Closer,
			Priority:  ff.Priority,
			Arguments: ff.Arguments,
			Handler:   ff.Handler,
		}
		for _, tf := range ff.Tags {
			fam.Tags = append(fam.Tags, &TagSpec{
				Name:      tf.Name,
				Isolated:  tf.Isolated,
				Verbatim:  tf.Verbatim,
				Arguments: tf.Arguments,
				Handler:   tf.Handler,
			})
		}
		families = append(families, fam)
	}
	return NewGrammar(families...)
}

// EncodeGrammar writes g as a YAML grammar document that LoadGrammar reads
// back. Families are written in precedence order.
func EncodeGrammar(w io.Writer, g *Grammar) error {
	var doc grammarFile
	for _, fam := range g.Families() {
		ff := familyFile{
			Name:      fam.Name,
			Opener:    fam.Opener,
			Closer:    fam.Closer,
			Priority:  fam.Priority,
			Arguments: fam.Arguments,
			Handler:   fam.Handler,
		}
		for _, tag := range fam.Tags {
			ff.Tags = append(ff.Tags, tagFile{
				Name:      tag.Name,
				Isolated:  tag.Isolated,
				Verbatim:  tag.Verbatim,
				Arguments: tag.Arguments,
				Handler:   tag.Handler,
			})
		}
		doc.Families = append(doc.Families, ff)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return err
	}
	return enc.Close()
}
