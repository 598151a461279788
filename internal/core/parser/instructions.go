package parser

// FormatInstructions explains the output notation to the model.
func FormatInstructions() string {
	return formatInstructions
}

const formatInstructions = `The output should be formatted as a set of Nodes in the form of [ENTITY_ID, TYPE, PROPERTIES]
and a set of relationships in the form [ENTITY_ID_1, RELATIONSHIP, ENTITY_ID_2, PROPERTIES].
Make sure you understand the format of both nodes and relationships before you start.
It is important that the ENTITY_ID_1 and ENTITY_ID_2 exists as nodes with a matching ENTITY_ID.
If you can't pair a relationship with a pair of nodes don't add it.
When you find a node or relationship you want to add try to create a generic TYPE for it that describes the entity, you can also think of it as a label.
The PROPERTIES should be a dictionary of key value pairs in JSON format. For example: {"name": "Alice", "location": "USA"}.

Here's an example of a valid answer:
` + "```" + `
Nodes: [['alice', 'Person', {'age': 25, 'occupation': 'lawyer', 'name': 'Alice'}], ['bob', 'Person', {'occupation': 'journalist', 'name': 'Bob'}], ['alice.com', 'Webpage', {'url': 'www.alice.com'}], ['bob.com', 'Webpage', {'url': 'www.bob.com'}]]
Relationships: [['alice', 'lives_with', 'bob', {'start': '2021'}], ['alice', 'owns', 'alice.com', {}], ['bob', 'owns', 'bob.com', {}]]
` + "```" + `

A valid example of an answer without relationships:
` + "```" + `
Nodes: [['alice', 'Person', {'age': 25, 'occupation': 'lawyer', 'name': 'Alice'}]]
Relationships: []
` + "```" + `

And here's an example of an invalid answer because ENTITY_ID_2 does not exist as a node:
` + "```" + `
Nodes: [['alice', 'Person', {'age': 25, 'occupation': 'lawyer', 'name': 'Alice'}]
Relationships: [['alice', 'lives_with', 'bob', {}]]
` + "```" + `

` + SchemaHint
