// Package openapi derives layout callbacks from OpenAPI 3 operations.
//
// The request body schema of an operation becomes a layout: object
// properties open sections (subsections when nested) and scalar properties
// become fields carrying type, label, help, format, required and options
// attributes. Layout specific hints live under the x-layout extension:
//
//	properties:
//	  salary:
//	    type: number
//	    x-layout:
//	      order: 3
//	      permissions: [hr.read]
//	      widget: currency
package openapi
