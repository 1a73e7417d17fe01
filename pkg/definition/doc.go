// Package definition loads layout definitions from JSON or YAML files and
// turns them into builder callbacks.
//
// A definition file holds a "layouts" map keyed by "module.context":
//
//	layouts:
//	  users.edit:
//	    components:
//	      - type: section
//	        name: account
//	        children:
//	          - name: email
//	            attributes: {label: Email, type: email, required: true}
//	          - name: salary
//	            permissions: [hr.read]
//
// Components default to "field", or to "section" when they have children.
// Icon attributes holding inline SVG are sanitised on load.
package definition
