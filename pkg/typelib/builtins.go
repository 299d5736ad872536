package typelib

var builtins = []Type{
	{Name: "/bool", Kind: KindBool},
	{Name: "/int8_t", Kind: KindInt, Size: 1},
	{Name: "/int16_t", Kind: KindInt, Size: 2},
	{Name: "/int32_t", Kind: KindInt, Size: 4},
	{Name: "/int64_t", Kind: KindInt, Size: 8},
	{Name: "/uint8_t", Kind: KindUint, Size: 1},
	{Name: "/uint16_t", Kind: KindUint, Size: 2},
	{Name: "/uint32_t", Kind: KindUint, Size: 4},
	{Name: "/uint64_t", Kind: KindUint, Size: 8},
	{Name: "/float", Kind: KindFloat, Size: 4},
	{Name: "/double", Kind: KindFloat, Size: 8},
	{Name: StringTypeName, Kind: KindString},
}

// C names accepted by the remote runtime for the builtin types.
var builtinAliases = map[string]string{
	"bool":          "/bool",
	"char":          "/int8_t",
	"short":         "/int16_t",
	"int":           "/int32_t",
	"long":          "/int64_t",
	"unsigned char": "/uint8_t",
	"unsigned int":  "/uint32_t",
	"float":         "/float",
	"double":        "/double",
	"/int":          "/int32_t",
}
