package xsd

import (
	"fmt"
	"strconv"
)

// Convert coerces a raw value to the given datatype. Raw may be a native Go
// string, bool, int or float, or an already-typed Value whose lexical form
// is re-parsed under the target datatype. A nil datatype entry (the object
// property case) yields an IRI.
func Convert(raw any, datatype Datatype) (Value, error) {
	if v, ok := raw.(Value); ok {
		// A langString survives conversion to its own kind untouched;
		// everything else is re-parsed from its lexical form.
		if s, isStr := v.(String); isStr && (datatype == DatatypeString || datatype == DatatypeLangString) {
			return s, nil
		}
		return convertLexical(v.String(), datatype)
	}
	return convertLexical(rawLexical(raw), datatype)
}

func rawLexical(raw any) string {
	switch x := raw.(type) {
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", raw)
	}
}

func convertLexical(lexical string, datatype Datatype) (Value, error) {
	switch datatype {
	case DatatypeString, DatatypeLangString:
		return NewString(lexical)
	case DatatypeBoolean:
		return NewBoolean(lexical)
	case DatatypeDecimal:
		return NewDecimal(lexical)
	case DatatypeFloat:
		return NewFloat(lexical)
	case DatatypeDouble:
		return NewDouble(lexical)
	case DatatypeDuration:
		return NewDuration(lexical)
	case DatatypeDateTime:
		return NewDateTime(lexical)
	case DatatypeDateTimeStamp:
		return NewDateTimeStamp(lexical)
	case DatatypeTime:
		return NewTime(lexical)
	case DatatypeDate:
		return NewDate(lexical)
	case DatatypeGYearMonth:
		return NewGYearMonth(lexical)
	case DatatypeGYear:
		return NewGYear(lexical)
	case DatatypeGMonthDay:
		return NewGMonthDay(lexical)
	case DatatypeGDay:
		return NewGDay(lexical)
	case DatatypeGMonth:
		return NewGMonth(lexical)
	case DatatypeHexBinary:
		return NewHexBinary(lexical)
	case DatatypeBase64Binary:
		return NewBase64Binary(lexical)
	case DatatypeAnyURI:
		return NewAnyURI(lexical)
	case DatatypeQName:
		return NewQName(lexical)
	case DatatypeNormalizedString:
		return NewNormalizedString(lexical)
	case DatatypeToken:
		return NewToken(lexical)
	case DatatypeLanguage:
		return NewLanguageVal(lexical)
	case DatatypeName:
		return NewName(lexical)
	case DatatypeNCName:
		return NewNCName(lexical)
	case DatatypeNMTOKEN:
		return NewNMTOKEN(lexical)
	case DatatypeID:
		return NewID(lexical)
	case DatatypeIDREF:
		return NewIDREF(lexical)
	case DatatypeInteger:
		return NewInteger(lexical)
	case DatatypeInt:
		return NewInt(lexical)
	case DatatypeNonPositiveInteger:
		return NewNonPositiveInteger(lexical)
	case DatatypeNegativeInteger:
		return NewNegativeInteger(lexical)
	case DatatypeLong:
		return NewLong(lexical)
	case DatatypeShort:
		return NewShort(lexical)
	case DatatypeByte:
		return NewByte(lexical)
	case DatatypeNonNegativeInteger:
		return NewNonNegativeInteger(lexical)
	case DatatypeUnsignedLong:
		return NewUnsignedLong(lexical)
	case DatatypeUnsignedInt:
		return NewUnsignedInt(lexical)
	case DatatypeUnsignedShort:
		return NewUnsignedShort(lexical)
	case DatatypeUnsignedByte:
		return NewUnsignedByte(lexical)
	case DatatypePositiveInteger:
		return NewPositiveInteger(lexical)
	case "":
		return ParseIRI(lexical)
	}
	return nil, valueErr("invalid datatype %q for value %q", datatype, lexical)
}
