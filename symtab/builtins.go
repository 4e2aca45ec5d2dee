package symtab

// DefaultBuiltins are functions compiled into the Octave interpreter.
// They never have walkable source. Functions Octave ships as .m files
// (fullfile, strsplit, ...) are found on the load path instead and can be
// pruned with an exclude prefix.
var DefaultBuiltins = []string{
	// core language
	"builtin", "cellfun", "arrayfun", "feval", "func2str", "str2func",
	"eval", "evalin", "assignin", "exist", "isargout", "nargin", "nargout",
	"narginchk", "nargchk", "print_usage", "inputname", "is_function_handle",
	"isvarname", "mfilename", "mlock", "munlock", "clear", "who", "whos",
	"tic", "toc", "clock", "cputime", "time", "pause", "exit", "quit",
	"rethrow", "lasterr", "lasterror", "error", "warning",
	"getenv", "setenv", "putenv", "unsetenv", "system", "pwd", "cd",
	"addpath", "rmpath", "path", "genpath", "pkg",

	// output
	"disp", "display", "printf", "fprintf", "sprintf", "puts", "fputs",
	"fdisp", "format", "more", "fflush", "stdout", "stderr",

	// files
	"fopen", "fclose", "fread", "fwrite", "fgetl", "fgets", "fskipl",
	"fscanf", "sscanf", "feof", "ferror", "fseek", "ftell", "frewind",
	"load", "save", "dir", "ls", "glob", "readdir", "mkdir", "rmdir",
	"unlink", "rename", "stat", "lstat", "tempdir", "tempname",
	"is_absolute_filename", "make_absolute_filename", "canonicalize_file_name",
	"file_in_loadpath", "file_in_path", "filesep", "pathsep",

	// construction and shape
	"zeros", "ones", "eye", "rand", "randn", "randi", "randperm", "inf",
	"Inf", "nan", "NaN", "NA", "pi", "e", "eps", "realmax", "realmin",
	"intmax", "intmin", "flintmax", "true", "false", "i", "j", "I", "J",
	"cell", "struct", "fieldnames", "isfield", "rmfield", "setfield",
	"getfield", "orderfields", "struct2cell", "cell2struct", "num2cell",
	"size", "numel", "length", "ndims", "rows", "columns", "isempty",
	"isnull", "reshape", "resize", "postpad", "prepad", "cat", "horzcat",
	"vertcat", "repmat", "permute", "ipermute", "squeeze", "colon",
	"linspace", "logspace", "sort", "unique", "find", "any", "all",
	"cumsum", "cumprod", "sum", "prod", "sumsq", "max", "min", "diff",
	"fliplr", "flipud", "circshift", "kron", "tril", "triu", "diag",

	// types
	"class", "isa", "double", "single", "logical", "char", "int8",
	"int16", "int32", "int64", "uint8", "uint16", "uint32", "uint64",
	"ischar", "iscell", "iscellstr", "isstruct", "isnumeric", "isreal",
	"iscomplex", "islogical", "isbool", "isfloat", "isinteger", "isscalar",
	"isvector", "ismatrix", "issquare", "isrow", "iscolumn", "isnan",
	"isinf", "isfinite", "isna", "issparse", "isdigit", "isspace",
	"isalpha", "isupper", "islower", "typecast", "cast",

	// strings
	"strcmp", "strcmpi", "strncmp", "strncmpi", "strfind", "strrep",
	"regexp", "regexpi", "regexprep", "num2str", "str2num", "str2double",
	"int2str", "mat2str", "upper", "lower", "toupper", "tolower",
	"strvcat", "blanks", "deblank", "strtrim", "substr", "index", "rindex",
	"dec2bin", "dec2hex", "hex2dec", "bin2dec", "toascii", "do_string_escapes",
	"undo_string_escapes", "ostrsplit",

	// arithmetic
	"abs", "sign", "sqrt", "exp", "log", "log2", "log10", "log1p", "expm1",
	"gamma", "lgamma", "sin", "cos", "tan", "asin", "acos", "atan",
	"atan2", "sinh", "cosh", "tanh", "floor", "ceil", "round", "fix",
	"mod", "rem", "hypot", "real", "imag", "conj", "arg", "angle",
	"plus", "minus", "times", "mtimes", "rdivide", "ldivide", "mrdivide",
	"mldivide", "power", "mpower", "uminus", "uplus", "not", "and", "or",
	"xor", "eq", "ne", "lt", "le", "gt", "ge", "transpose", "ctranspose",
	"det", "inv", "pinv", "norm", "chol", "lu", "qr", "svd", "eig",
	"bitand", "bitor", "bitxor", "bitshift", "erf", "erfc",
}
