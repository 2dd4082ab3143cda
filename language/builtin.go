package language

// Builtin describes a language known without configuration.
type Builtin struct {
	Key      string
	Name     string
	Suffixes []string // without dot
	// Patterns match file names that carry no usable suffix.
	Patterns []string
}

// Builtins lists the languages recognized out of the box. A suffix belongs to
// at most one language.
var Builtins = []Builtin{
	{Key: "go", Name: "Go", Suffixes: []string{"go"}},
	{Key: "js", Name: "JavaScript", Suffixes: []string{"js", "jsx", "mjs", "cjs"}},
	{Key: "ts", Name: "TypeScript", Suffixes: []string{"ts", "tsx", "mts", "cts"}},
	{Key: "py", Name: "Python", Suffixes: []string{"py", "pyi", "pyw"}},
	{Key: "rust", Name: "Rust", Suffixes: []string{"rs"}},
	{Key: "java", Name: "Java", Suffixes: []string{"java", "jav"}},
	{Key: "kotlin", Name: "Kotlin", Suffixes: []string{"kt", "kts"}},
	{Key: "c", Name: "C", Suffixes: []string{"c", "h"}},
	{Key: "cpp", Name: "C++", Suffixes: []string{"cpp", "cc", "cxx", "c++", "hpp", "hh", "hxx", "h++", "ipp"}},
	{Key: "cs", Name: "C#", Suffixes: []string{"cs", "csx", "razor"}},
	{Key: "swift", Name: "Swift", Suffixes: []string{"swift"}},
	{Key: "dart", Name: "Dart", Suffixes: []string{"dart"}},
	{Key: "ruby", Name: "Ruby", Suffixes: []string{"rb", "erb"}, Patterns: []string{"**/Gemfile", "**/Rakefile"}},
	{Key: "php", Name: "PHP", Suffixes: []string{"php", "php3", "php4", "php5", "phtml", "inc"}},
	{Key: "shell", Name: "Shell", Suffixes: []string{"sh", "bash", "zsh", "ksh"}},
	{Key: "ps", Name: "PowerShell", Suffixes: []string{"ps1", "psm1", "psd1"}},
	{Key: "web", Name: "HTML", Suffixes: []string{"html", "xhtml", "htm", "cshtml", "vbhtml", "aspx", "ascx", "rhtml", "shtm", "shtml", "cmp", "twig"}},
	{Key: "css", Name: "CSS", Suffixes: []string{"css", "less", "scss", "sass"}},
	{Key: "json", Name: "JSON", Suffixes: []string{"json", "jsonc"}},
	{Key: "yaml", Name: "YAML", Suffixes: []string{"yaml", "yml"}},
	{Key: "toml", Name: "TOML", Suffixes: []string{"toml"}},
	{Key: "xml", Name: "XML", Suffixes: []string{"xml", "xsd", "xsl", "xslt"}},
	{Key: "sql", Name: "SQL", Suffixes: []string{"sql"}},
	{Key: "proto", Name: "Protobuf", Suffixes: []string{"proto"}},
	{Key: "docker", Name: "Dockerfile", Suffixes: []string{"dockerfile"}, Patterns: []string{"**/Dockerfile"}},
	{Key: "terraform", Name: "Terraform", Suffixes: []string{"tf", "tfvars"}},
	{Key: "lua", Name: "Lua", Suffixes: []string{"lua"}},
	{Key: "scala", Name: "Scala", Suffixes: []string{"scala"}},
	{Key: "elixir", Name: "Elixir", Suffixes: []string{"ex", "exs"}},
	{Key: "erlang", Name: "Erlang", Suffixes: []string{"erl", "hrl"}},
	{Key: "haskell", Name: "Haskell", Suffixes: []string{"hs"}},
	{Key: "zig", Name: "Zig", Suffixes: []string{"zig"}},
	{Key: "vue", Name: "Vue", Suffixes: []string{"vue"}},
	{Key: "svelte", Name: "Svelte", Suffixes: []string{"svelte"}},
	{Key: "make", Name: "Makefile", Suffixes: []string{"mk"}, Patterns: []string{"**/Makefile", "**/GNUmakefile"}},
	{Key: "cmake", Name: "CMake", Suffixes: []string{"cmake"}, Patterns: []string{"**/CMakeLists.txt"}},
}

// BuiltinByKey returns the built-in language registered under key.
func BuiltinByKey(key string) (Builtin, bool) {
	for _, b := range Builtins {
		if b.Key == key {
			return b, true
		}
	}
	return Builtin{}, false
}
