package xsd

// Datatype identifies an XSD datatype by its QName. The langString datatype
// belongs to the rdf namespace but is handled alongside the XSD family.
type Datatype string

const (
	DatatypeString             Datatype = "xsd:string"
	DatatypeLangString         Datatype = "rdf:langString"
	DatatypeBoolean            Datatype = "xsd:boolean"
	DatatypeDecimal            Datatype = "xsd:decimal"
	DatatypeFloat              Datatype = "xsd:float"
	DatatypeDouble             Datatype = "xsd:double"
	DatatypeDuration           Datatype = "xsd:duration"
	DatatypeDateTime           Datatype = "xsd:dateTime"
	DatatypeDateTimeStamp      Datatype = "xsd:dateTimeStamp"
	DatatypeTime               Datatype = "xsd:time"
	DatatypeDate               Datatype = "xsd:date"
	DatatypeGYearMonth         Datatype = "xsd:gYearMonth"
	DatatypeGYear              Datatype = "xsd:gYear"
	DatatypeGMonthDay          Datatype = "xsd:gMonthDay"
	DatatypeGDay               Datatype = "xsd:gDay"
	DatatypeGMonth             Datatype = "xsd:gMonth"
	DatatypeHexBinary          Datatype = "xsd:hexBinary"
	DatatypeBase64Binary       Datatype = "xsd:base64Binary"
	DatatypeAnyURI             Datatype = "xsd:anyURI"
	DatatypeQName              Datatype = "xsd:QName"
	DatatypeNormalizedString   Datatype = "xsd:normalizedString"
	DatatypeToken              Datatype = "xsd:token"
	DatatypeLanguage           Datatype = "xsd:language"
	DatatypeName               Datatype = "xsd:Name"
	DatatypeNCName             Datatype = "xsd:NCName"
	DatatypeNMTOKEN            Datatype = "xsd:NMTOKEN"
	DatatypeID                 Datatype = "xsd:ID"
	DatatypeIDREF              Datatype = "xsd:IDREF"
	DatatypeInteger            Datatype = "xsd:integer"
	DatatypeInt                Datatype = "xsd:int"
	DatatypeNonPositiveInteger Datatype = "xsd:nonPositiveInteger"
	DatatypeNegativeInteger    Datatype = "xsd:negativeInteger"
	DatatypeLong               Datatype = "xsd:long"
	DatatypeShort              Datatype = "xsd:short"
	DatatypeByte               Datatype = "xsd:byte"
	DatatypeNonNegativeInteger Datatype = "xsd:nonNegativeInteger"
	DatatypeUnsignedLong       Datatype = "xsd:unsignedLong"
	DatatypeUnsignedInt        Datatype = "xsd:unsignedInt"
	DatatypeUnsignedShort      Datatype = "xsd:unsignedShort"
	DatatypeUnsignedByte       Datatype = "xsd:unsignedByte"
	DatatypePositiveInteger    Datatype = "xsd:positiveInteger"
)

// String returns the QName of the datatype.
func (d Datatype) String() string {
	return string(d)
}

// ParseDatatype resolves a QName string to a known Datatype.
func ParseDatatype(s string) (Datatype, error) {
	d := Datatype(s)
	if _, ok := fromRDFByDatatype[d]; ok || d == DatatypeLangString {
		return d, nil
	}
	return "", valueErr("unknown datatype %q", s)
}

// fromRDFByDatatype dispatches an RDF lexical to the matching un-validated
// constructor.
var fromRDFByDatatype = map[Datatype]func(string) (Value, error){
	DatatypeString:             func(s string) (Value, error) { return StringFromRDF(s, ""), nil },
	DatatypeBoolean:            func(s string) (Value, error) { return BooleanFromRDF(s) },
	DatatypeDecimal:            func(s string) (Value, error) { return DecimalFromRDF(s) },
	DatatypeFloat:              func(s string) (Value, error) { return FloatFromRDF(s) },
	DatatypeDouble:             func(s string) (Value, error) { return DoubleFromRDF(s) },
	DatatypeDuration:           func(s string) (Value, error) { return DurationFromRDF(s), nil },
	DatatypeDateTime:           func(s string) (Value, error) { return DateTimeFromRDF(s) },
	DatatypeDateTimeStamp:      func(s string) (Value, error) { return DateTimeStampFromRDF(s) },
	DatatypeTime:               func(s string) (Value, error) { return TimeFromRDF(s) },
	DatatypeDate:               func(s string) (Value, error) { return DateFromRDF(s) },
	DatatypeGYearMonth:         func(s string) (Value, error) { return GYearMonthFromRDF(s), nil },
	DatatypeGYear:              func(s string) (Value, error) { return GYearFromRDF(s), nil },
	DatatypeGMonthDay:          func(s string) (Value, error) { return GMonthDayFromRDF(s), nil },
	DatatypeGDay:               func(s string) (Value, error) { return GDayFromRDF(s), nil },
	DatatypeGMonth:             func(s string) (Value, error) { return GMonthFromRDF(s), nil },
	DatatypeHexBinary:          func(s string) (Value, error) { return HexBinaryFromRDF(s), nil },
	DatatypeBase64Binary:       func(s string) (Value, error) { return Base64BinaryFromRDF(s), nil },
	DatatypeAnyURI:             func(s string) (Value, error) { return AnyURIFromRDF(s), nil },
	DatatypeQName:              func(s string) (Value, error) { return QNameFromRDF(s), nil },
	DatatypeNormalizedString:   func(s string) (Value, error) { return NormalizedStringFromRDF(s), nil },
	DatatypeToken:              func(s string) (Value, error) { return TokenFromRDF(s), nil },
	DatatypeLanguage:           func(s string) (Value, error) { return LanguageValFromRDF(s), nil },
	DatatypeName:               func(s string) (Value, error) { return NameFromRDF(s), nil },
	DatatypeNCName:             func(s string) (Value, error) { return NCNameFromRDF(s), nil },
	DatatypeNMTOKEN:            func(s string) (Value, error) { return NMTOKENFromRDF(s), nil },
	DatatypeID:                 func(s string) (Value, error) { return IDFromRDF(s), nil },
	DatatypeIDREF:              func(s string) (Value, error) { return IDREFFromRDF(s), nil },
	DatatypeInteger:            func(s string) (Value, error) { return IntegerFromRDF(s) },
	DatatypeInt:                func(s string) (Value, error) { return IntFromRDF(s) },
	DatatypeNonPositiveInteger: func(s string) (Value, error) { return NonPositiveIntegerFromRDF(s) },
	DatatypeNegativeInteger:    func(s string) (Value, error) { return NegativeIntegerFromRDF(s) },
	DatatypeLong:               func(s string) (Value, error) { return LongFromRDF(s) },
	DatatypeShort:              func(s string) (Value, error) { return ShortFromRDF(s) },
	DatatypeByte:               func(s string) (Value, error) { return ByteFromRDF(s) },
	DatatypeNonNegativeInteger: func(s string) (Value, error) { return NonNegativeIntegerFromRDF(s) },
	DatatypeUnsignedLong:       func(s string) (Value, error) { return UnsignedLongFromRDF(s) },
	DatatypeUnsignedInt:        func(s string) (Value, error) { return UnsignedIntFromRDF(s) },
	DatatypeUnsignedShort:      func(s string) (Value, error) { return UnsignedShortFromRDF(s) },
	DatatypeUnsignedByte:       func(s string) (Value, error) { return UnsignedByteFromRDF(s) },
	DatatypePositiveInteger:    func(s string) (Value, error) { return PositiveIntegerFromRDF(s) },
}

// DatatypeOf reports the datatype of a value. Language-tagged strings map to
// rdf:langString, IRIs and blank nodes to the empty datatype.
func DatatypeOf(v Value) Datatype {
	switch x := v.(type) {
	case String:
		if x.Lang() != "" {
			return DatatypeLangString
		}
		return DatatypeString
	case Boolean:
		return DatatypeBoolean
	case Decimal:
		return DatatypeDecimal
	case Float:
		return DatatypeFloat
	case Double:
		return DatatypeDouble
	case Duration:
		return DatatypeDuration
	case DateTime:
		return DatatypeDateTime
	case DateTimeStamp:
		return DatatypeDateTimeStamp
	case Time:
		return DatatypeTime
	case Date:
		return DatatypeDate
	case GYearMonth:
		return DatatypeGYearMonth
	case GYear:
		return DatatypeGYear
	case GMonthDay:
		return DatatypeGMonthDay
	case GDay:
		return DatatypeGDay
	case GMonth:
		return DatatypeGMonth
	case HexBinary:
		return DatatypeHexBinary
	case Base64Binary:
		return DatatypeBase64Binary
	case AnyURI:
		return DatatypeAnyURI
	case QName:
		return DatatypeQName
	case NormalizedString:
		return DatatypeNormalizedString
	case Token:
		return DatatypeToken
	case LanguageVal:
		return DatatypeLanguage
	case Name:
		return DatatypeName
	case NCName:
		return DatatypeNCName
	case NMTOKEN:
		return DatatypeNMTOKEN
	case ID:
		return DatatypeID
	case IDREF:
		return DatatypeIDREF
	case Integer:
		return DatatypeInteger
	case Int:
		return DatatypeInt
	case NonPositiveInteger:
		return DatatypeNonPositiveInteger
	case NegativeInteger:
		return DatatypeNegativeInteger
	case Long:
		return DatatypeLong
	case Short:
		return DatatypeShort
	case Byte:
		return DatatypeByte
	case NonNegativeInteger:
		return DatatypeNonNegativeInteger
	case UnsignedLong:
		return DatatypeUnsignedLong
	case UnsignedInt:
		return DatatypeUnsignedInt
	case UnsignedShort:
		return DatatypeUnsignedShort
	case UnsignedByte:
		return DatatypeUnsignedByte
	}
	return ""
}

// FromRDF turns the lexical form of a typed literal read back from the store
// into the matching Value. Unknown datatypes fall back to a plain string.
func FromRDF(lexical string, datatype Datatype) (Value, error) {
	if conv, ok := fromRDFByDatatype[datatype]; ok {
		return conv(lexical)
	}
	return StringFromRDF(lexical, ""), nil
}
