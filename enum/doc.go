// Package enum defines the value model for server-defined enumerations.
//
// A Catalog maps an enumeration name to the ordered list of values the server
// allows for it. The order of values is display-significant: it is the order
// in which pickers and paged lists present them. The order of names is not.
//
// # Values
//
// A Value is one of two variants:
//   - KindString: a bare string such as "ADMIN". Its code and its display
//     name are the same string.
//   - KindStructured: a record with a stable code and a human-readable
//     display name, e.g. {"code": "ADMIN", "displayName": "Administrator"}.
//     Extra keys on the record (such as "onlyFor") are kept as raw JSON
//     attributes and written back when the value is marshaled.
//
// The zero Value has KindInvalid. It is what a JSON null decodes to and has
// no display text.
//
// # Wire Format
//
// The catalog is exchanged as a JSON object:
//
//	{
//	  "UserRole": ["ADMIN", "USER"],
//	  "BillingInterval": [
//	    {"code": "MONTHLY", "displayName": "Monthly"},
//	    {"code": "WEEKLY", "displayName": "Weekly", "onlyFor": "SPECIAL_CUSTOMER"}
//	  ]
//	}
//
// ParseCatalog decodes that format. CatalogFromMap accepts the generic
// map form produced by YAML and TOML decoders.
package enum
