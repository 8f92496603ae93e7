// Package vimopt catalogs Neovim's buffer-local options.
//
// The catalog backs the in-memory host's option table and the
// configuration schema emitted for editors that validate settings files.
// The reconciler itself never consults it.
package vimopt

import (
	"math"
	"sort"
)

// Kind is the value type of an option.
type Kind uint8

const (
	KindBool Kind = iota
	KindNumber
	KindString
)

// String returns the kind name as used in JSON schemas.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Option describes one buffer-local option.
type Option struct {
	Name        string
	Short       string
	Kind        Kind
	Default     any
	Description string
}

var catalog = []Option{
	{"autoindent", "ai", KindBool, true, "take indent for new line from previous line"},
	{"autoread", "ar", KindBool, true, "autom. read file when changed outside of Vim"},
	{"backupcopy", "bkc", KindString, "auto", "make backup as a copy, don't rename the file"},
	{"binary", "bin", KindBool, false, "read/write/edit file in binary mode"},
	{"bomb", "", KindBool, false, "prepend a Byte Order Mark to the file"},
	{"bufhidden", "bh", KindString, "", "what to do when buffer is no longer in window"},
	{"buflisted", "bl", KindBool, true, "whether the buffer shows up in the buffer list"},
	{"buftype", "bt", KindString, "", "special type of buffer"},
	{"cindent", "cin", KindBool, false, "do C program indenting"},
	{"cinkeys", "cink", KindString, "0{,0},0),0],:,0#,!^F,o,O,e", "keys that trigger indent when 'cindent' is set"},
	{"cinoptions", "cino", KindString, "", "how to do indenting when 'cindent' is set"},
	{"cinscopedecls", "cinsd", KindString, "public,protected,private", "words that are recognized by 'cino-g'"},
	{"cinwords", "cinw", KindString, "if,else,while,do,for,switch", "words where 'si' and 'cin' add an indent"},
	{"comments", "com", KindString, "s1:/*,mb:*,ex:*/,://,b:#,:%,:XCOMM,n:>,fb:-", "patterns that can start a comment line"},
	{"commentstring", "cms", KindString, "", "template for comments; used for fold marker"},
	{"complete", "cpt", KindString, ".,w,b,u,t", "specify how Insert mode completion works"},
	{"completefunc", "cfu", KindString, "", "function to be used for Insert mode completion"},
	{"copyindent", "ci", KindBool, false, "make 'autoindent' use existing indent structure"},
	{"define", "def", KindString, "", "pattern to be used to find a macro definition"},
	{"dictionary", "dict", KindString, "", "list of file names used for keyword completion"},
	{"endoffile", "eof", KindBool, false, "write CTRL-Z at end of the file"},
	{"endofline", "eol", KindBool, true, "write <EOL> for last line in file"},
	{"equalprg", "ep", KindString, "", "external program to use for \"=\" command"},
	{"errorformat", "efm", KindString, "%f:%l:%c:%m", "description of the lines in the error file"},
	{"expandtab", "et", KindBool, false, "use spaces when <Tab> is inserted"},
	{"fileencoding", "fenc", KindString, "", "file encoding for multibyte text"},
	{"fileformat", "ff", KindString, "unix", "file format used for file I/O"},
	{"filetype", "ft", KindString, "", "type of file, used for autocommands"},
	{"fixendofline", "fixeol", KindBool, true, "make sure last line in file has <EOL>"},
	{"formatexpr", "fex", KindString, "", "expression used with \"gq\" command"},
	{"formatlistpat", "flp", KindString, `^\s*\d\+[\]:.)}\t ]\s*`, "pattern used to recognize a list header"},
	{"formatoptions", "fo", KindString, "tcqj", "how automatic formatting is to be done"},
	{"formatprg", "fp", KindString, "", "name of external program used with \"gq\" command"},
	{"grepprg", "gp", KindString, "grep -n ", "program to use for \":grep\""},
	{"iminsert", "imi", KindNumber, int64(0), "use :lmap or IM in Insert mode"},
	{"imsearch", "ims", KindNumber, int64(-1), "use :lmap or IM when typing a search pattern"},
	{"include", "inc", KindString, "", "pattern to be used to find an include file"},
	{"includeexpr", "inex", KindString, "", "expression used to process an include line"},
	{"indentexpr", "inde", KindString, "", "expression used to obtain the indent of a line"},
	{"indentkeys", "indk", KindString, "0{,0},0),0],:,0#,!^F,o,O,e", "keys that trigger indenting with 'indentexpr'"},
	{"infercase", "inf", KindBool, false, "adjust case of match for keyword completion"},
	{"iskeyword", "isk", KindString, "@,48-57,_,192-255", "characters included in keywords"},
	{"keymap", "kmp", KindString, "", "name of a keyboard mapping"},
	{"keywordprg", "kp", KindString, ":Man", "program to use for the \"K\" command"},
	{"lisp", "", KindBool, false, "automatic indenting for Lisp"},
	{"lispoptions", "lop", KindString, "", "how to indent Lisp"},
	{"lispwords", "lw", KindString, "", "words that change how lisp indenting works"},
	{"makeencoding", "menc", KindString, "", "encoding of external make/grep commands"},
	{"makeprg", "mp", KindString, "make", "program to use for the \":make\" command"},
	{"matchpairs", "mps", KindString, "(:),{:},[:]", "pairs of characters that \"%\" can match"},
	{"modeline", "ml", KindBool, true, "recognize modelines at start or end of file"},
	{"modifiable", "ma", KindBool, true, "changes to the text are not possible"},
	{"modified", "mod", KindBool, false, "buffer has been modified"},
	{"nrformats", "nf", KindString, "bin,hex", "number formats recognized for CTRL-A command"},
	{"omnifunc", "ofu", KindString, "", "function for filetype-specific completion"},
	{"path", "pa", KindString, ".,,", "list of directories searched with \"gf\" et.al."},
	{"preserveindent", "pi", KindBool, false, "preserve the indent structure when reindenting"},
	{"quoteescape", "qe", KindString, `\`, "escape characters used in a string"},
	{"readonly", "ro", KindBool, false, "disallow writing the buffer"},
	{"shiftwidth", "sw", KindNumber, int64(8), "number of spaces to use for (auto)indent step"},
	{"smartindent", "si", KindBool, false, "smart autoindenting for C programs"},
	{"softtabstop", "sts", KindNumber, int64(0), "number of spaces that <Tab> uses while editing"},
	{"spellcapcheck", "spc", KindString, `[.?!]\_[\])'"\t ]\+`, "pattern to locate end of a sentence"},
	{"spellfile", "spf", KindString, "", "files where zg and zw store words"},
	{"spelllang", "spl", KindString, "en", "language(s) to do spell checking for"},
	{"spelloptions", "spo", KindString, "", "options for spell checking"},
	{"suffixesadd", "sua", KindString, "", "suffixes added when searching for a file"},
	{"swapfile", "swf", KindBool, true, "whether to use a swapfile for a buffer"},
	{"synmaxcol", "smc", KindNumber, int64(3000), "maximum column to find syntax items"},
	{"syntax", "syn", KindString, "", "syntax to be loaded for current buffer"},
	{"tabstop", "ts", KindNumber, int64(8), "number of spaces that <Tab> in file uses"},
	{"tagcase", "tc", KindString, "followic", "how to handle case when searching in tags files"},
	{"tagfunc", "tfu", KindString, "", "function to get list of tag matches"},
	{"tags", "tag", KindString, "./tags;,tags", "list of file names used by the tag command"},
	{"textwidth", "tw", KindNumber, int64(0), "maximum width of text that is being inserted"},
	{"thesaurus", "tsr", KindString, "", "list of thesaurus files for keyword completion"},
	{"thesaurusfunc", "tsrfu", KindString, "", "function to be used for thesaurus completion"},
	{"undofile", "udf", KindBool, false, "save undo information in a file"},
	{"undolevels", "ul", KindNumber, int64(1000), "maximum number of changes that can be undone"},
	{"varsofttabstop", "vsts", KindString, "", "a list of number of spaces when typing <Tab>"},
	{"vartabstop", "vts", KindString, "", "a list of number of spaces for <Tab>s"},
	{"wrapmargin", "wm", KindNumber, int64(0), "chars from the right where wrapping starts"},
}

var (
	byName  = make(map[string]*Option, len(catalog))
	byShort = make(map[string]*Option, len(catalog))
)

func init() {
	for i := range catalog {
		opt := &catalog[i]
		byName[opt.Name] = opt
		if opt.Short != "" {
			byShort[opt.Short] = opt
		}
	}
}

// Lookup finds an option by long or short name.
func Lookup(name string) (Option, bool) {
	if opt, ok := byName[name]; ok {
		return *opt, true
	}
	if opt, ok := byShort[name]; ok {
		return *opt, true
	}
	return Option{}, false
}

// All returns every cataloged option sorted by name.
func All() []Option {
	out := make([]Option, len(catalog))
	copy(out, catalog)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Defaults returns a fresh name→default table.
func Defaults() map[string]any {
	out := make(map[string]any, len(catalog))
	for _, opt := range catalog {
		out[opt.Name] = opt.Default
	}
	return out
}

// Int64 converts an integer-valued number to int64. Floats are accepted
// only when they have no fractional part, since settings decoded from JSON
// arrive as float64.
func Int64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), n <= math.MaxInt64
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), n <= math.MaxInt64
	case float32:
		return floatInt(float64(n))
	case float64:
		return floatInt(n)
	default:
		return 0, false
	}
}

func floatInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}
