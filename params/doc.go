/*
Package params turns request parameters into kit.Params.

A [Parser] decodes query params or a JSON body into a struct
and validates it with the rules in its validate struct tags.
Besides the validator's own rules, the enum rule checks a querykit.Enumerable is valid.
Validation failures return as [ValidationErrors], which wrap querykit.ErrNotValid.

[FromStruct] hands the fields set on such a struct to kit.Kit.Filter;
[FromValues] does the same for url.Values without decoding them first.
*/
package params
