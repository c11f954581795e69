package pintype

// Conversion describes an adapter capable of turning a value of one category
// into another. Function is the catalog identifier of the adapter callable.
type Conversion struct {
	From     Category
	To       Category
	Label    string
	Function string
}

var conversions = []Conversion{
	{From: Bool, To: Int, Label: "bool_to_int", Function: "Conv.BoolToInt"},
	{From: Int, To: Bool, Label: "int_to_bool", Function: "Conv.IntToBool"},
	{From: Int, To: Float, Label: "int_to_float", Function: "Conv.IntToFloat"},
	{From: Float, To: Int, Label: "float_to_int", Function: "Conv.FloatToInt"},
	{From: Name, To: String, Label: "name_to_string", Function: "Conv.NameToString"},
	{From: String, To: Name, Label: "string_to_name", Function: "Conv.StringToName"},
	{From: String, To: Text, Label: "string_to_text", Function: "Conv.StringToText"},
	{From: Text, To: String, Label: "text_to_string", Function: "Conv.TextToString"},
}

// Conversions returns the full conversion table.
func Conversions() []Conversion {
	out := make([]Conversion, len(conversions))
	copy(out, conversions)
	return out
}

// FindConversion looks up the adapter for the (from, to) pair.
func FindConversion(from, to Category) (Conversion, bool) {
	for _, c := range conversions {
		if c.From == from && c.To == to {
			return c, true
		}
	}
	return Conversion{}, false
}
