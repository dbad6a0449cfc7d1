// Package fieldpath tokenizes field references used in filters, ORDER BY
// terms, projections and index definitions, and renders them as query
// language field expressions.
//
// Grammar:
//
//	path     = segment { "." segment | "[" digits "]" }
//	segment  = identifier | "*"
//
// A "*" segment is a wildcard meaning "some element of the array at this
// position". At most one wildcard is allowed per path, and it must follow a
// segment. The literal path "id" is reserved: it always resolves to the
// document's metadata identifier accessor, TOSTRING(META().id).
//
// Rendering modes:
//
//	predicate mode   tags[0].name  ->  `tags`[0].`name`
//	                 authors.*.name -> ANY `elem` IN `authors` SATISFIES `elem`.`name` ... END
//	index mode       authors.*.name -> DISTINCT ARRAY `elem`.`name` FOR `elem` IN `authors` END
//
// Every identifier is quoted with backticks so reserved words survive;
// embedded backticks are doubled.
package fieldpath
