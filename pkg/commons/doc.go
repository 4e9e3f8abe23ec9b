// Package commons holds the entities shared by the element-info and variable
// services: applications, versions, test environments and test cases.
package commons
