// Package api is the HTTP surface of the info server. It routes the
// commons, element info and variable areas on one ServeMux, authenticates
// every area route, and maps domain errors to JSON {"detail": ...}
// answers.
//
// Element info lists run the retention sweep before filtering. Variable
// lists resolve, reserve, filter by application visibility and finally
// mask protected values, in that order.
package api
